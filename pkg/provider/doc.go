// Package provider defines the provider-neutral identity types.
//
// Concrete providers (see packages facebook and twitter) implement
// IdentityProvider; those that can be linked to a backend account also
// implement Federated. Continuations are plain closures: a caller that needs
// a particular execution context captures it in the closure.
package provider
