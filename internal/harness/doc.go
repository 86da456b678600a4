// Package harness runs site conformance scenarios.
//
// A scenario writes a set of templates to a fresh site, builds its schema,
// seeds records, replays HTTP requests against the server and checks the
// responses and the final state.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: scenario_name
//	description: "What this scenario validates"
//	templates:
//	  index.html: "{{title}}{{#section offices}}{{city}}{{/section}}"
//	setup:
//	  - section: offices
//	    content: { city: Berlin }
//	flow:
//	  - request: POST /api/sections/offices/records
//	    body: { city: Tokyo }
//	    expect:
//	      status: 201
//	assertions:
//	  - type: page_contains
//	    path: /
//	    text: Tokyo
//	  - type: record_count
//	    section: offices
//	    count: 2
//
// # Assertion Types
//
//   - page_contains: GET path and look for text in the body
//   - page_order: GET path and check texts appear in order
//   - record_count: a section holds exactly count records
//   - schema_field: the built schema has field in section
//
// # Deterministic Testing
//
// Every scenario runs against an in-memory SQLite database with a
// testutil.FixedClock, a fixed request id and an offline link unfurler, so
// responses are identical across runs and can be compared with golden files.
package harness
