// Package httpclient is the single path every authenticated call takes.
//
// Wrap composes a transport with a request interceptor and a response
// interceptor:
//
//	request interceptors -> transport.Do -> response interceptors -> caller
//
// Bearer reads the session snapshot on every call and attaches the
// credential; AuthFailure reacts to a 401 by running the termination
// sequence and still hands the 401 to the caller. Client.Do has the shape
// of http.Client.Do so the wrapper drops in wherever a transport is used.
package httpclient
