/*

Package nreply holds the error and response conventions used by
nroute.

Errors that should reach a client carry an HTTP status, either as an
*ApplicationError or by annotating any error with ReturnCode.  All
other errors become a 500 whose details are logged but not sent.

Error responses are always JSON: {"message": "..."}.

JSON() is a small builder for success responses and CatchPanic turns
panics into errors so they can be reported the same way.

*/
package nreply
