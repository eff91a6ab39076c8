package auth

import (
	"strings"
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 8

// MaxPasswordBytes is the longest input bcrypt will hash.
const MaxPasswordBytes = 72

const MsgPasswordTooLong = "This password is too long. It must contain at most 72 bytes."

func PasswordTooLong(password string) bool {
	return len(password) > MaxPasswordBytes
}

func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func CheckPassword(hash, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}

// PasswordContext holds the account attributes a password must not resemble.
type PasswordContext struct {
	Username  string
	Email     string
	FirstName string
	LastName  string
}

var commonPasswords = map[string]struct{}{}

func init() {
	for _, p := range []string{
		"password", "password1", "password123", "12345678", "123456789", "1234567890",
		"qwertyuiop", "qwerty123", "iloveyou", "sunshine", "princess", "football",
		"baseball", "welcome1", "letmein1", "admin123", "abc12345", "trustno1",
		"passw0rd", "superman", "starwars", "whatever", "dragon123", "monkey123",
		"11111111", "00000000", "asdfghjkl", "zaq12wsx", "1q2w3e4r", "library1",
	} {
		commonPasswords[p] = struct{}{}
	}
}

// ValidatePassword returns every policy violation, or nil when the password is acceptable.
func ValidatePassword(password string, pc PasswordContext) []string {
	var problems []string
	if len([]rune(password)) < minPasswordLength {
		problems = append(problems, "This password is too short. It must contain at least 8 characters.")
	}
	if PasswordTooLong(password) {
		problems = append(problems, MsgPasswordTooLong)
	}

	lower := strings.ToLower(password)
	for _, attr := range []struct{ name, value string }{
		{"username", pc.Username},
		{"email address", pc.Email},
		{"first name", pc.FirstName},
		{"last name", pc.LastName},
	} {
		if tooSimilar(lower, attr.value) {
			problems = append(problems, "The password is too similar to the "+attr.name+".")
			break
		}
	}

	if _, ok := commonPasswords[lower]; ok {
		problems = append(problems, "This password is too common.")
	}
	if password != "" && strings.IndexFunc(password, func(r rune) bool { return !unicode.IsDigit(r) }) == -1 {
		problems = append(problems, "This password is entirely numeric.")
	}
	return problems
}

func tooSimilar(lowerPassword, attr string) bool {
	attr = strings.ToLower(strings.TrimSpace(attr))
	if attr == "" || lowerPassword == "" {
		return false
	}
	parts := append([]string{attr}, strings.FieldsFunc(attr, func(r rune) bool {
		return r == '@' || r == '.' || r == '_' || r == '-' || r == '+' || r == ' '
	})...)
	for _, part := range parts {
		if len(part) < 3 {
			continue
		}
		if strings.Contains(lowerPassword, part) || strings.Contains(part, lowerPassword) {
			return true
		}
	}
	return false
}
