// Copyright (c) 2026 Lectio. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package library

import "time"

// Image is a cached remote image, usually a novel cover.
type Image struct {
	URL         string
	ContentType string
	Data        []byte
	CachedAt    time.Time
}
