// Package props implements the property cache.
//
// The markup backend does not inline attributes. It hands the source
// of an element's directives (its fragment) to Cache.Resolve and embeds
// the returned id as data-props. The id is stable while the fragment
// resolves to the same attribute values and changes as soon as any
// value does, so a snapshot diff only has to compare one attribute to
// know that an element's real attributes changed. Hooks then push the
// cached attributes onto the live node.
package props
