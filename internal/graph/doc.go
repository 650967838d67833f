// Package graph is a small typed client for the Microsoft Graph mail API.
//
// Every call goes through one request helper that sets the bearer token,
// checks the status code the endpoint documents for success and decodes the
// JSON response. Any other status is returned as an *APIError carrying the
// raw response body, so callers can show the service's own explanation.
//
// Only the first page of list results is returned; @odata.nextLink is not
// followed.
package graph
