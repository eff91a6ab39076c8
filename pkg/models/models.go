package models

// Role is the closed set of account kinds. It is assigned at signup and never changes.
type Role string

const (
	RoleMember Role = "member"
	RoleWorker Role = "worker"
)

func (r Role) Valid() bool {
	return r == RoleMember || r == RoleWorker
}

// users table
type User struct {
	ID             int64   `json:"id"`
	Username       string  `json:"username"`
	Email          string  `json:"email"`
	FirstName      string  `json:"first_name"`
	LastName       string  `json:"last_name"`
	PasswordHash   string  `json:"-"`
	Role           Role    `json:"role"`
	ProfilePicture *string `json:"profile_picture"`
}

// authors table
type Author struct {
	ID          int64   `json:"id"`
	FirstName   string  `json:"first_name"`
	LastName    string  `json:"last_name"`
	Biography   *string `json:"biography"`
	DateOfBirth *Date   `json:"date_of_birth"`
	DateOfDeath *Date   `json:"date_of_death"`
}

func (a Author) DisplayName() string {
	return a.FirstName + " " + a.LastName
}

// categories table
type Category struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// subcategories table
type SubCategory struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	CategoryID int64  `json:"category"`
}

// books table, foreign keys as ids
type Book struct {
	ID              int64   `json:"id"`
	Title           string  `json:"title"`
	Description     *string `json:"description"`
	ISBN            string  `json:"isbn"`
	PublicationDate Date    `json:"publication_date"`
	AuthorID        int64   `json:"author"`
	CategoryID      *int64  `json:"category"`
	SubCategoryID   *int64  `json:"subcategory"`
	TotalCopies     int     `json:"total_copies"`
	AvailableCopies int     `json:"available_copies"`
}

// BookListing is the browse shape of a book: related records rendered as display strings.
type BookListing struct {
	ID              int64   `json:"id"`
	Title           string  `json:"title"`
	Description     *string `json:"description"`
	ISBN            string  `json:"isbn"`
	PublicationDate Date    `json:"publication_date"`
	Author          string  `json:"author"`
	Category        *string `json:"category"`
	SubCategory     *string `json:"subcategory"`
	TotalCopies     int     `json:"total_copies"`
	AvailableCopies int     `json:"available_copies"`
}

// borrows table. IsOverdue is derived when the record is read, never stored.
type Borrow struct {
	ID         int64  `json:"id"`
	MemberID   int64  `json:"-"`
	Member     string `json:"member"`
	BookID     int64  `json:"-"`
	Book       string `json:"book"`
	BorrowDate Date   `json:"borrow_date"`
	DueDate    Date   `json:"due_date"`
	ReturnDate *Date  `json:"return_date"`
	Returned   bool   `json:"returned"`
	IsOverdue  bool   `json:"is_overdue"`
}

// OverdueOn reports whether the borrow is outstanding past its due date.
func (b Borrow) OverdueOn(today Date) bool {
	return !b.Returned && b.DueDate.Before(today)
}

// CirculationEvent is pushed to the worker feed after a borrow or return.
type CirculationEvent struct {
	Type     string `json:"type"` // "borrowed" | "returned"
	BorrowID int64  `json:"borrow_id"`
	BookID   int64  `json:"book_id"`
	Book     string `json:"book"`
	Member   string `json:"member"`
	At       int64  `json:"at"`
}
