package utils

import (
	"math/rand"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/guardias-hospital/shift-manager/backend/internal/domain"
)

var commonSurnames = []string{
	"Gonzalez", "Rodriguez", "Gomez", "Fernandez", "Lopez", "Diaz", "Martinez", "Perez", "Garcia", "Sanchez",
	"Romero", "Sosa", "Torres", "Alvarez", "Ruiz", "Ramirez", "Flores", "Acosta", "Benitez", "Medina",
}

var commonFirstNames = []string{
	"Lucia", "Martin", "Sofia", "Juan", "Valentina", "Mateo", "Camila", "Santiago", "Julieta", "Nicolas",
	"Agustina", "Tomas", "Florencia", "Facundo", "Carolina", "Federico", "Paula", "Diego", "Micaela", "Lautaro",
}

func GenerateRandomFullName() string {
	first := commonFirstNames[rand.Intn(len(commonFirstNames))]
	surname := commonSurnames[rand.Intn(len(commonSurnames))]
	return first + " " + surname
}

func GenerateRandomDoctorRole() domain.Role {
	return domain.DoctorRoles[rand.Intn(len(domain.DoctorRoles))]
}

var digits = "0123456789"

// GenerateUsernameFromFullName builds "lgonzalez42" style usernames.
func GenerateUsernameFromFullName(fullName string) string {
	parts := strings.Fields(strings.ToLower(fullName))
	username := ""
	for i, p := range parts {
		if i == len(parts)-1 {
			username += p
		} else {
			username += p[:1]
		}
	}

	digitsLength := rand.Intn(3) + 1
	for i := 0; i < digitsLength; i++ {
		username += string(digits[rand.Intn(len(digits))])
	}

	return username
}

func GenerateRandomDoctor(password string, emailDomainName string) (*domain.User, error) {
	fullName := GenerateRandomFullName()
	username := GenerateUsernameFromFullName(fullName)
	passwordHash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		Username:     username,
		PasswordHash: string(passwordHash),
		FullName:     "Dr. " + fullName,
		Email:        username + "@" + emailDomainName,
		Role:         GenerateRandomDoctorRole(),
	}

	return user, nil
}

var letters = []rune("abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789!@#$%^&*")

func GenerateRandomPassword(length int) string {
	random_password := make([]rune, length)
	for i := range random_password {
		random_password[i] = letters[rand.Intn(len(letters))]
	}
	return string(random_password)
}

// GenerateRandomCategory picks a category from the catalog.
func GenerateRandomCategory() string {
	categories := make([]string, 0, len(domain.Categories))
	for c := range domain.Categories {
		categories = append(categories, c)
	}
	return categories[rand.Intn(len(categories))]
}
