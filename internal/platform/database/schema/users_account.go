// Copyright (c) 2026 Lectio. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package schema

// UsersAccountTable represents the 'users' table
type UsersAccountTable struct {
	Table     string
	Username  string
	Password  string
	UserLevel string
	CreatedAt string
}

// UsersAccount is the schema definition for users
var UsersAccount = UsersAccountTable{
	Table:     "users",
	Username:  "username",
	Password:  "password",
	UserLevel: "user_level",
	CreatedAt: "created_at",
}

func (t UsersAccountTable) Columns() []string {
	return []string{t.Username, t.Password, t.UserLevel, t.CreatedAt}
}
