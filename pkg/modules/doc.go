// Package modules defines the documents stored in the YANG search indices.
//
// A Module document is identified by the triple (name, revision, organization).
// The search engine assigns its own document ids, but nothing in yangsearch
// relies on them: existence checks, lookups and deletions always resolve a
// document through a query on the identity fields.
//
// # Documents
//
//   - Module: catalog entry for one revision of a YANG module
//   - Draft: IETF draft that defines or references modules
//   - Node: a single schema node of a module (container, leaf, list, ...)
//
// # Usage Example
//
//	m := modules.Module{Name: "ietf-rip", Revision: "2020-02-20", Organization: "ietf"}
//	if err := m.Identity().Validate(); err != nil {
//		return err
//	}
//	fmt.Println(m.Identity().Key()) // ietf-rip@2020-02-20/ietf
package modules
