// Copyright (c) 2026 Lectio. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package schema names the tables and columns of the SQLite store so that
// repositories build their statements from one source of truth.
package schema
