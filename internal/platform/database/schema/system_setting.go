// Copyright (c) 2026 Lectio. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package schema

// SystemSettingTable represents the 'settings' table
type SystemSettingTable struct {
	Table string
	Key   string
	Value string
}

var SystemSetting = SystemSettingTable{
	Table: "settings",
	Key:   "key",
	Value: "value",
}
