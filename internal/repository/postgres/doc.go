// Package postgres implements the alarm repository and the line cache on
// PostgreSQL through the pgx database/sql driver.
package postgres
