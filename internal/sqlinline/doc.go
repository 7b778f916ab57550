// Package sqlinline holds every SQL statement the service issues. Each
// constant opens with a "--sql <uuid>" line; the SQLRunner strips the line
// before execution and logs the uuid, so a slow statement seen in Postgres
// can be traced back to the constant that issued it. tools/sqllint enforces
// the convention.
package sqlinline
