// package rawhttp contains the request, response and event types, which
// are meant to be exported. the package name is meant to be same with the
// top level package name so that IDEs and code editors could pick them up
package rawhttp
