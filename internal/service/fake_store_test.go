package service

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"library-lending/internal/domain"
	"library-lending/internal/errors"
)

// fakeStore is an in-memory domain.Store. It mirrors the store-level
// guarantees the schema provides, including the one-active-loan-per-book
// uniqueness backstop, so lifecycle tests exercise the same failure paths as
// the real database.
type fakeStore struct {
	books   map[uuid.UUID]*domain.Book
	members map[uuid.UUID]*domain.Member
	loans   map[uuid.UUID]*domain.Loan
	users   map[uuid.UUID]*domain.User
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		books:   make(map[uuid.UUID]*domain.Book),
		members: make(map[uuid.UUID]*domain.Member),
		loans:   make(map[uuid.UUID]*domain.Loan),
		users:   make(map[uuid.UUID]*domain.User),
	}
}

func (f *fakeStore) Books() domain.BookRepository     { return (*fakeBookRepo)(f) }
func (f *fakeStore) Members() domain.MemberRepository { return (*fakeMemberRepo)(f) }
func (f *fakeStore) Loans() domain.LoanRepository     { return (*fakeLoanRepo)(f) }
func (f *fakeStore) Users() domain.UserRepository     { return (*fakeUserRepo)(f) }

func (f *fakeStore) WithTransaction(fn func(domain.Store) error) error {
	return fn(f)
}

func (f *fakeStore) addBook() uuid.UUID {
	id := uuid.New()
	f.books[id] = &domain.Book{ID: id, Title: "Book " + id.String()[:8], ISBN: id.String()}
	return id
}

func (f *fakeStore) addMember() uuid.UUID {
	id := uuid.New()
	f.members[id] = &domain.Member{ID: id, FirstName: "Test", LastName: "Member", Email: id.String() + "@example.com"}
	return id
}

type fakeBookRepo fakeStore

func (f *fakeBookRepo) CreateBook(book *domain.Book) error {
	for _, existing := range f.books {
		if existing.ISBN == book.ISBN {
			return errors.ErrDuplicateISBN
		}
	}
	cp := *book
	f.books[book.ID] = &cp
	return nil
}

func (f *fakeBookRepo) GetBook(id uuid.UUID) (*domain.Book, error) {
	book, ok := f.books[id]
	if !ok {
		return nil, errors.ErrBookNotFound
	}
	cp := *book
	return &cp, nil
}

func (f *fakeBookRepo) ListBooks() ([]domain.Book, error) {
	books := []domain.Book{}
	for _, book := range f.books {
		books = append(books, *book)
	}
	return books, nil
}

func (f *fakeBookRepo) UpdateBook(book *domain.Book) error {
	if _, ok := f.books[book.ID]; !ok {
		return errors.ErrBookNotFound
	}
	cp := *book
	f.books[book.ID] = &cp
	return nil
}

func (f *fakeBookRepo) DeleteBook(id uuid.UUID) error {
	if _, ok := f.books[id]; !ok {
		return errors.ErrBookNotFound
	}
	for _, loan := range f.loans {
		if loan.BookID == id {
			return errors.ErrBookHasLoans
		}
	}
	delete(f.books, id)
	return nil
}

type fakeMemberRepo fakeStore

func (f *fakeMemberRepo) CreateMember(member *domain.Member) error {
	for _, existing := range f.members {
		if existing.Email == member.Email {
			return errors.ErrDuplicateEmail
		}
	}
	cp := *member
	f.members[member.ID] = &cp
	return nil
}

func (f *fakeMemberRepo) GetMember(id uuid.UUID) (*domain.Member, error) {
	member, ok := f.members[id]
	if !ok {
		return nil, errors.ErrMemberNotFound
	}
	cp := *member
	return &cp, nil
}

func (f *fakeMemberRepo) GetMemberForUpdate(id uuid.UUID) (*domain.Member, error) {
	return f.GetMember(id)
}

func (f *fakeMemberRepo) ListMembers() ([]domain.Member, error) {
	members := []domain.Member{}
	for _, member := range f.members {
		members = append(members, *member)
	}
	return members, nil
}

func (f *fakeMemberRepo) UpdateMember(member *domain.Member) error {
	if _, ok := f.members[member.ID]; !ok {
		return errors.ErrMemberNotFound
	}
	cp := *member
	f.members[member.ID] = &cp
	return nil
}

func (f *fakeMemberRepo) DeleteMember(id uuid.UUID) error {
	if _, ok := f.members[id]; !ok {
		return errors.ErrMemberNotFound
	}
	delete(f.members, id)
	for loanID, loan := range f.loans {
		if loan.MemberID == id {
			delete(f.loans, loanID)
		}
	}
	return nil
}

type fakeLoanRepo fakeStore

func (f *fakeLoanRepo) CreateLoan(loan *domain.Loan) error {
	// Same backstop as the partial unique index on (book_id, BORROWED).
	if loan.Status == domain.LoanStatusBorrowed {
		for _, existing := range f.loans {
			if existing.BookID == loan.BookID && existing.Status == domain.LoanStatusBorrowed {
				return errors.ErrBookUnavailable
			}
		}
	}
	cp := *loan
	f.loans[loan.ID] = &cp
	return nil
}

func (f *fakeLoanRepo) GetLoan(id uuid.UUID) (*domain.Loan, error) {
	loan, ok := f.loans[id]
	if !ok {
		return nil, errors.ErrLoanNotFound
	}
	cp := *loan
	return &cp, nil
}

func (f *fakeLoanRepo) GetLoanForUpdate(id uuid.UUID) (*domain.Loan, error) {
	return f.GetLoan(id)
}

func (f *fakeLoanRepo) UpdateLoan(loan *domain.Loan) error {
	if _, ok := f.loans[loan.ID]; !ok {
		return errors.ErrLoanNotFound
	}
	// Same backstop as the schema check: return_date is present exactly when
	// the loan is closed.
	if (loan.ReturnDate == nil) != (loan.Status == domain.LoanStatusBorrowed) {
		return errors.ErrInconsistentLoanState
	}
	cp := *loan
	f.loans[loan.ID] = &cp
	return nil
}

func (f *fakeLoanRepo) DeleteLoan(id uuid.UUID) error {
	if _, ok := f.loans[id]; !ok {
		return errors.ErrLoanNotFound
	}
	delete(f.loans, id)
	return nil
}

func (f *fakeLoanRepo) ListLoans() ([]domain.Loan, error) {
	loans := []domain.Loan{}
	for _, loan := range f.loans {
		loans = append(loans, *loan)
	}
	return loans, nil
}

func (f *fakeLoanRepo) CountLoansByBookAndStatus(bookID uuid.UUID, status domain.LoanStatus) (int64, error) {
	var count int64
	for _, loan := range f.loans {
		if loan.BookID == bookID && loan.Status == status {
			count++
		}
	}
	return count, nil
}

func (f *fakeLoanRepo) CountLoansByMemberAndStatus(memberID uuid.UUID, status domain.LoanStatus) (int64, error) {
	var count int64
	for _, loan := range f.loans {
		if loan.MemberID == memberID && loan.Status == status {
			count++
		}
	}
	return count, nil
}

func (f *fakeLoanRepo) FindLoansByStatusAndDueBefore(status domain.LoanStatus, date time.Time) ([]domain.Loan, error) {
	loans := []domain.Loan{}
	for _, loan := range f.loans {
		if loan.Status == status && loan.DueDate.Before(date) {
			loans = append(loans, *loan)
		}
	}
	return loans, nil
}

func (f *fakeLoanRepo) FindLoansByMember(memberID uuid.UUID) ([]domain.Loan, error) {
	loans := []domain.Loan{}
	for _, loan := range f.loans {
		if loan.MemberID == memberID {
			loans = append(loans, *loan)
		}
	}
	sort.Slice(loans, func(i, j int) bool {
		return loans[i].BorrowDate.After(loans[j].BorrowDate)
	})
	return loans, nil
}

type fakeUserRepo fakeStore

func (f *fakeUserRepo) CreateUser(user *domain.User) error {
	for _, existing := range f.users {
		if existing.Username == user.Username || existing.Email == user.Email {
			return errors.ErrDuplicateUser
		}
	}
	cp := *user
	f.users[user.ID] = &cp
	return nil
}

func (f *fakeUserRepo) GetUser(id uuid.UUID) (*domain.User, error) {
	user, ok := f.users[id]
	if !ok {
		return nil, errors.ErrUserNotFound
	}
	cp := *user
	return &cp, nil
}

func (f *fakeUserRepo) GetUserByUsername(username string) (*domain.User, error) {
	for _, user := range f.users {
		if user.Username == username {
			cp := *user
			return &cp, nil
		}
	}
	return nil, errors.ErrUserNotFound
}
