// Package seed creates demo data for development databases. Relations are created
// through the domain services so seeded rows obey the same rules as live traffic.
package seed

import (
	"fmt"
	"strings"
	"time"

	"chirper/internal/models"

	"github.com/brianvoe/gofakeit/v6"
)

const maxUsernameLen = 30

// Factory builds unsaved domain entities from fake data.
type Factory struct {
	faker *gofakeit.Faker
}

// NewFactory returns a Factory. A zero seed picks a random one.
func NewFactory(seed int64) *Factory {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Factory{faker: gofakeit.New(seed)}
}

// BuildUser returns a user whose username and email are unique for index n.
func (f *Factory) BuildUser(n int, hashedPassword string) *models.User {
	first, last := f.faker.FirstName(), f.faker.LastName()
	username := slug(first) + "_" + slug(last)
	suffix := fmt.Sprintf("%d", n)
	if len(username)+len(suffix) > maxUsernameLen {
		username = username[:maxUsernameLen-len(suffix)]
	}
	username += suffix

	hash := hashedPassword
	return &models.User{
		Name:           first + " " + last,
		Username:       username,
		Email:          username + "@example.com",
		HashedPassword: &hash,
		Bio:            f.faker.Sentence(8),
		ProfileImage:   fmt.Sprintf("https://picsum.photos/seed/%s/200/200", username),
		CoverImage:     fmt.Sprintf("https://picsum.photos/seed/cover-%s/1200/400", username),
	}
}

// PostBody returns a short fake post.
func (f *Factory) PostBody() string {
	return f.faker.Sentence(f.faker.Number(4, 20))
}

// CommentBody returns a short fake reply.
func (f *Factory) CommentBody() string {
	return f.faker.Sentence(f.faker.Number(2, 10))
}

// Intn returns a pseudo-random int in [0, n).
func (f *Factory) Intn(n int) int {
	if n <= 0 {
		return 0
	}
	return f.faker.Number(0, n-1)
}

// slug keeps lowercase ASCII letters and digits only.
func slug(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return "user"
	}
	return b.String()
}
