package account

import (
	"regexp"
	"strings"
	"time"

	"gorm.io/gorm"

	"terravest-backend/internal/models"
)

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

const passwordSpecials = "@$!%*?&"

// ValidateSignup checks signup input field by field and returns a map of
// field name to message, empty when the input is acceptable. The error
// return is for the uniqueness query itself failing, not for bad input.
func ValidateSignup(db *gorm.DB, in SignupInput) (map[string]string, error) {
	errs := map[string]string{}

	if in.FirstName == "" {
		errs["first_name"] = "First name is required."
	}
	if in.LastName == "" {
		errs["last_name"] = "Last name is required."
	}
	if in.Country == "" {
		errs["country"] = "Country is required."
	}
	if in.DateOfBirth == "" {
		errs["date_of_birth"] = "Date of birth is required."
	}
	if in.Password == "" {
		errs["password"] = "Password is required."
	}
	if in.ConfirmPassword == "" {
		errs["confirm_password"] = "Confirm password is required."
	}

	// Uniqueness is only worth a query once the email itself is usable.
	switch {
	case in.Email == "":
		errs["email"] = "Email is required."
	case !emailPattern.MatchString(in.Email):
		errs["email"] = "Invalid email format."
	default:
		var count int64
		if err := db.Model(&models.User{}).Where("email = ?", in.Email).Count(&count).Error; err != nil {
			return nil, err
		}
		if count > 0 {
			errs["email"] = "Email is already registered."
		}
	}

	if in.Password != "" && !validPassword(in.Password) {
		errs["password"] = "Password must contain at least 8 characters, a number, and a special character."
	}

	if in.Password != in.ConfirmPassword {
		errs["confirm_password"] = "Passwords do not match."
	}

	if in.DateOfBirth != "" {
		dob, err := time.Parse("2006-01-02", in.DateOfBirth)
		if err != nil {
			errs["dob"] = "Invalid date format."
		} else if age(dob, time.Now()) < 18 {
			errs["dob"] = "You must be at least 18 years old to sign up."
		}
	}

	return errs, nil
}

// validPassword requires >=8 chars with at least one letter, one digit, and
// one of the allowed special characters.
func validPassword(pw string) bool {
	if len(pw) < 8 {
		return false
	}
	var hasLetter, hasDigit, hasSpecial bool
	for _, r := range pw {
		switch {
		case (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z'):
			hasLetter = true
		case r >= '0' && r <= '9':
			hasDigit = true
		case strings.ContainsRune(passwordSpecials, r):
			hasSpecial = true
		}
	}
	return hasLetter && hasDigit && hasSpecial
}

func age(dob, now time.Time) int {
	years := now.Year() - dob.Year()
	if now.Month() < dob.Month() || (now.Month() == dob.Month() && now.Day() < dob.Day()) {
		years--
	}
	return years
}
