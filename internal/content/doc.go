// Package content turns stored records into renderable template content and
// runs record writes through their section's directives.
//
// Reads: SectionContent resolves one template branch (a section or form tag)
// into either a list of rendered records or, for forms, the form markup.
//
// Writes: CreateRecord, UpdateRecord and DestroyRecord serialize and
// validate content explicitly before persistence and notify subscribers
// afterwards, so caches and live reload can react.
package content
