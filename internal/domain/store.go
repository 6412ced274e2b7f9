package domain

// Store bundles the entity repositories and provides the unit-of-work
// boundary. Implementations back the repositories with either a plain
// connection or an open database transaction.
type Store interface {
	Books() BookRepository
	Members() MemberRepository
	Loans() LoanRepository
	Users() UserRepository
	// WithTransaction runs fn with a Store whose repositories share a single
	// database transaction. fn returning an error rolls everything back.
	WithTransaction(fn func(Store) error) error
}
