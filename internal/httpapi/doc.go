// Package httpapi exposes the reservation engine over HTTP with JSON bodies.
//
// Endpoints:
//   - POST /requests                     submit a booking request and get the decision
//   - GET  /requests/{id}                fetch a request with its current state
//   - POST /requests/{id}/withdraw       withdraw a request, freeing its slot if approved
//   - GET  /requests/{id}/alternatives   recompute alternative rooms for a rejected request
//   - POST /requests/{id}/resolve        re-arbitrate a stuck pending request (admin token required)
//   - GET  /rooms                        list the active room catalog
//   - POST /commitments                  register a recurring commitment (admin token required)
//   - DELETE /commitments/{id}           remove a recurring commitment (admin token required)
//   - GET  /audit                        list notification attempts in a time range
//   - GET  /audit/report                 aggregate delivery report per channel and status
//
// User-facing messages are in Spanish. Error responses carry a stable
// error_code plus, for validation failures, per-field messages.
package httpapi
