// Package domain contains the core model types, the persisted state
// document, the collaborator interfaces, and shared sentinel errors.
// It depends on no other internal package.
package domain
