// Copyright (c) 2026 Lectio. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package remote

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"
)

var placeholder = regexp.MustCompile(`\$\{([A-Za-z0-9_.-]+)\}`)

// expand substitutes ${0}, ${1} and ${key} in template. Unknown keys expand to
// the empty string.
func expand(template string, ref string, page int, props map[string]string) string {
	queryStart := strings.IndexByte(template, '?')

	return replaceAllIndexed(template, func(name string, offset int) string {
		var value string
		switch name {
		case "0":
			value = ref
		case "1":
			value = strconv.Itoa(page)
		default:
			value = props[name]
		}

		if queryStart >= 0 && offset > queryStart {
			return url.QueryEscape(value)
		}
		return value
	})
}

// replaceAllIndexed is ReplaceAllStringFunc with the match offset.
func replaceAllIndexed(template string, replace func(name string, offset int) string) string {
	var builder strings.Builder
	last := 0

	for _, match := range placeholder.FindAllStringSubmatchIndex(template, -1) {
		builder.WriteString(template[last:match[0]])
		builder.WriteString(replace(template[match[2]:match[3]], match[0]))
		last = match[1]
	}
	builder.WriteString(template[last:])

	return builder.String()
}
