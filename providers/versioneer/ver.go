/*
Package versioneer provides the canonical version model shared by every supported grammar:
the Vars superset, schemas that lay fields out into core, extra core and build segments,
schema-driven comparison and the lossless canonical serialization.

Usage:

	schema := versioneer.MustSchema(versioneer.Fields(versioneer.FieldMajor, versioneer.FieldMinor, versioneer.FieldPatch), nil, nil)
	doc := versioneer.Serialize(versioneer.Zerv{Schema: schema, Vars: vars})
	back, err := versioneer.Deserialize(doc)
*/
package versioneer
