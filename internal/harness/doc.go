// Package harness runs YAML scenarios against the transaction and query
// builders.
//
// # Scenario Format
//
//	name: seattle_communities
//	description: "Schema plus one community, queried by type"
//	steps:
//	  - attribute: { name: community, identity: name, valueType: string, fulltext: true }
//	  - add: { entity: community, attribute: name, value: "Beacon Hill" }
//	  - find: [e, name]
//	  - where: [{ bind: [e, community/name] }, { pos: name }]
//	  - arg: [{ pair: [community/type, twitter] }]
//	  - limit: 10
//	expect:
//	  query: "[:find ?e ?name :in $ :where [?e :community/name ?name]]"
//	  args: '[[:community/type "twitter"]]'
//
// Each step sets exactly one operation. Transaction steps (attribute, add,
// retract, add_many) and query steps (find, in, where, arg, limit, offset,
// raw_query) feed separate builders, so a scenario can exercise both.
//
// # Expectations
//
// Renders are compared after trimming surrounding whitespace. Setting
// expect.error turns the scenario into a negative test: it passes only
// when the first builder error contains that text.
//
// The test command and RunWithGolden additionally compare a snapshot of
// the renders against testdata/golden/<name>.golden via goldie.
package harness
