package auth

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"sync"

	"golang.org/x/crypto/bcrypt"

	"github.com/erazemk/lostfound/internal/db"
	"github.com/erazemk/lostfound/internal/model"
	"github.com/erazemk/lostfound/internal/store"
)

// Registration is the input for creating a student account.
type Registration struct {
	Name     string `form:"name" validate:"required,max=120"`
	Email    string `form:"email" validate:"required,email,max=200"`
	Password string `form:"password" validate:"required,min=8,max=72"`
}

// Credentials stores users and checks their passwords.
type Credentials struct {
	DB *db.DB

	// Cost is the bcrypt cost. Zero means bcrypt.DefaultCost.
	Cost int

	dummyOnce sync.Once
	dummyHash []byte
}

// NewCredentials returns a credential store using the default bcrypt cost.
// The dummy hash used for unknown emails is computed up front so the first
// failed lookup costs the same as every later one.
func NewCredentials(conn *db.DB) *Credentials {
	c := &Credentials{DB: conn}
	c.dummy()
	return c
}

// NormalizeEmail trims and lowercases an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (c *Credentials) cost() int {
	if c.Cost == 0 {
		return bcrypt.DefaultCost
	}
	return c.Cost
}

// Register creates a student account. Fails with model.ErrEmailTaken if the
// normalized email is already registered.
func (c *Credentials) Register(ctx context.Context, reg Registration) (*model.User, error) {
	reg.Name = strings.TrimSpace(reg.Name)
	reg.Email = NormalizeEmail(reg.Email)
	if err := model.Validate(reg); err != nil {
		return nil, err
	}
	if err := model.ValidatePassword(reg.Password); err != nil {
		return nil, model.NewValidationError("password", err.Error())
	}

	existing, err := store.GetUserByEmail(ctx, c.DB, reg.Email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, model.ErrEmailTaken
	}

	return c.create(ctx, reg.Name, reg.Email, reg.Password, model.RoleStudent)
}

func (c *Credentials) create(ctx context.Context, name, email, password, role string) (*model.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), c.cost())
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}
	// A concurrent registration that slipped past the pre-check surfaces as
	// ErrEmailTaken from the unique index.
	return store.CreateUser(ctx, c.DB, name, email, string(hash), role)
}

// Verify checks an email/password pair. Unknown emails and wrong passwords
// both return model.ErrInvalidCredentials, and both pay for one bcrypt
// comparison.
func (c *Credentials) Verify(ctx context.Context, email, password string) (*model.User, error) {
	user, err := store.GetUserByEmail(ctx, c.DB, NormalizeEmail(email))
	if err != nil {
		return nil, err
	}

	hash := c.dummy()
	if user != nil {
		hash = []byte(user.PasswordHash)
	}

	if err := bcrypt.CompareHashAndPassword(hash, []byte(password)); err != nil || user == nil {
		return nil, model.ErrInvalidCredentials
	}
	return user, nil
}

// dummy returns a hash that no password matches, computed at the same cost
// as real hashes.
func (c *Credentials) dummy() []byte {
	c.dummyOnce.Do(func() {
		secret, err := GeneratePassword(32)
		if err != nil {
			secret = "unguessable-placeholder-password"
		}
		c.dummyHash, _ = bcrypt.GenerateFromPassword([]byte(secret), c.cost())
	})
	return c.dummyHash
}

// EnsureStaff creates a staff account with a random password if no staff
// account exists yet. The generated password is returned only when created.
func (c *Credentials) EnsureStaff(ctx context.Context, name, email string) (string, bool, error) {
	count, err := store.CountUsers(ctx, c.DB, model.RoleStaff)
	if err != nil {
		return "", false, err
	}
	if count > 0 {
		return "", false, nil
	}

	password, err := GeneratePassword(16)
	if err != nil {
		return "", false, fmt.Errorf("generating password: %w", err)
	}

	if _, err := c.create(ctx, name, NormalizeEmail(email), password, model.RoleStaff); err != nil {
		return "", false, fmt.Errorf("creating staff user: %w", err)
	}
	return password, true, nil
}

// GeneratePassword creates a random password of the given length.
func GeneratePassword(length int) (string, error) {
	const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789!@#$%&*"
	result := make([]byte, length)
	for i := range result {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		if err != nil {
			return "", err
		}
		result[i] = charset[n.Int64()]
	}
	return string(result), nil
}
