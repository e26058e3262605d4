// Package middleware provides net/http adapters over the authority: bearer
// token validation and tenant scoping for route groups. It is a thin layer;
// anything beyond extracting the token and writing the status code belongs in
// the application.
package middleware
