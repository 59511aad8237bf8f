// Package api serves the YANG search HTTP API.
//
// Public endpoints, under /api/yang-search/v2:
//
//	GET /completions/{keyword}/{pattern}         keyword is module, organization or draft
//	GET /modules/{name}/revisions                ?revision= limits to one revision
//	GET /modules/{name}/latest-revision
//	GET /show-node/{name}/{path}[/{revision}]
//
// Administrative endpoints, same prefix:
//
//	PUT|GET|DELETE /indices/{kind}
//	GET|POST       /indices/{kind}/modules
//	GET            /indices/{kind}/modules/{name}
//	GET            /indices/{kind}/modules/{name}/{revision}
//	GET|DELETE     /indices/{kind}/modules/{name}/{revision}/{organization}
//
// Engine failures map to 503 when the engine cannot be reached and to 502
// when it answered with an error or an unreadable response.
package api
