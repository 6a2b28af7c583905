// Package core holds the HTTP response envelope and error types shared by
// all services: a JSON body with data/meta/error sections and HTTPError
// values that map domain failures to status codes and stable error keys.
package core
