package policy

// Package policy holds the pure authorization rules. Every function is
// synchronous and side-effect free; services evaluate them before any
// storage mutation.
//
// Templates and documents are deliberately asymmetric: an admin may read
// and manage any system template, but has no blanket access to another
// user's documents.

import "templify/internal/model"

// DefaultTemplateQuota caps concurrently owned user templates per non-admin
// actor.
const DefaultTemplateQuota = 5

// CanReadTemplate allows system templates for everyone, user templates for
// their owner, and everything for admins.
func CanReadTemplate(actor model.Actor, t *model.Template) bool {
	if t.StorageType == model.StorageSystem {
		return true
	}
	return actor.IsAdmin() || t.OwnerID == actor.ID
}

// CanWriteTemplate allows admins on system templates and owners on their
// own user templates.
func CanWriteTemplate(actor model.Actor, t *model.Template) bool {
	if t.StorageType == model.StorageSystem {
		return actor.IsAdmin()
	}
	return t.OwnerID == actor.ID
}

// CanDeleteTemplate mirrors CanWriteTemplate: admin for system templates,
// owner for user templates. Admin does not override user-template ownership.
func CanDeleteTemplate(actor model.Actor, t *model.Template) bool {
	return CanWriteTemplate(actor, t)
}

// CanReadDocument allows only the owner; admins get no blanket read.
func CanReadDocument(actor model.Actor, d *model.Document) bool {
	return d.OwnerID == actor.ID
}

// CanWriteDocument allows only the owner.
func CanWriteDocument(actor model.Actor, d *model.Document) bool {
	return d.OwnerID == actor.ID
}

// CanDeleteDocument allows only the owner.
func CanDeleteDocument(actor model.Actor, d *model.Document) bool {
	return d.OwnerID == actor.ID
}

// CanCreateSystemTemplate restricts system template creation to admins.
func CanCreateSystemTemplate(actor model.Actor) bool {
	return actor.IsAdmin()
}

// WithinTemplateQuota reports whether an actor owning owned user templates
// may create another under the given quota. Admins are never limited.
func WithinTemplateQuota(actor model.Actor, owned, quota int) bool {
	if actor.IsAdmin() {
		return true
	}
	return owned < quota
}
