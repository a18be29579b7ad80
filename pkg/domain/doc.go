// Package domain contains the core entities of the service: users, the
// documents they upload, the chunks those documents are split into and the
// answers produced at query time. The types are intentionally free of
// infrastructure concerns so they can be shared across packages.
package domain
