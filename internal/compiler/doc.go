// Package compiler turns site template markup into a schema tree and renders
// content back into it.
//
// The template language is a constrained mustache dialect:
//
//	{{title required=false}}                 field with params
//	{{#section offices limit=3}}...{{/section}} section block (keyword optional)
//	{{#form contact}}...{{/form}}            contact form block
//	{{#if title}}...{{else}}...{{/if}}       conditional, does not open a scope
//	{{general.title}}                        field attributed to another section
//	{{> header}}                             partial, expanded before lexing
//
// Parsing never touches storage. Every section block is keyed by its full tag
// text so differently parameterized openings of the same name stay distinct;
// merging by name is the builder's job.
package compiler
