// Package accounts implements the account lifecycle for credential based
// applications: registration with email activation, activate/deactivate
// transitions, login with signed session issuance, password change and
// password reset flows.
//
// Durable state lives behind a RepositoryManager backed by bun; password
// hashing uses bcrypt; sessions and reset grants are stateless signed JWTs.
// The Lifecycle service holds no state between calls, every operation takes
// an explicit context.Context and runs its store mutations inside a single
// transaction.
package accounts
