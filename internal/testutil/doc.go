// Package testutil contains builders and fakes used across tests to reduce
// boilerplate when constructing sessions, events and scripted models. It is
// not intended for production usage.
package testutil
