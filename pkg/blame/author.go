// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package blame

import (
	"fmt"
	"strings"

	"gitlab.com/tozd/go/errors"
)

// 👤 Author is the identity a commit is attributed to.
//
// Two authors are the same person when their Key matches: names compare after
// trimming, emails compare case-insensitively.
type Author struct {
	Name  string `json:"name" yaml:"name"`
	Email string `json:"email" yaml:"email"`
}

// 🔑 AuthorKey is the comparable form of an Author, used as a map key.
type AuthorKey struct {
	name  string
	email string
}

// Key returns the normalized identity of a.
func (a Author) Key() AuthorKey {
	return AuthorKey{
		name:  strings.TrimSpace(a.Name),
		email: strings.ToLower(strings.TrimSpace(a.Email)),
	}
}

// Compare orders keys by name, then email.
func (k AuthorKey) Compare(o AuthorKey) int {
	if c := strings.Compare(k.name, o.name); c != 0 {
		return c
	}
	return strings.Compare(k.email, o.email)
}

// Equal reports whether a and b are the same person.
func (a Author) Equal(b Author) bool {
	return a.Key() == b.Key()
}

// IsZero reports whether a carries no identity at all.
func (a Author) IsZero() bool {
	return a.Key() == AuthorKey{}
}

// Matches reports whether filter names this author. The filter may be the
// name, the email or the full "Name <email>" form.
func (a Author) Matches(filter string) bool {
	filter = strings.TrimSpace(filter)
	if filter == "" {
		return true
	}
	if strings.Contains(filter, "<") {
		other, err := ParseAuthor(filter)
		return err == nil && a.Equal(other)
	}
	k := a.Key()
	return filter == k.name || strings.ToLower(filter) == k.email
}

// String renders the author the way git does.
func (a Author) String() string {
	switch {
	case a.Email == "":
		return a.Name
	case a.Name == "":
		return "<" + a.Email + ">"
	default:
		return fmt.Sprintf("%s <%s>", a.Name, a.Email)
	}
}

// 🧩 ParseAuthor parses "Name <email>", "Name" or "<email>".
func ParseAuthor(s string) (Author, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Author{}, errors.Errorf("empty author")
	}

	open := strings.Index(s, "<")
	if open < 0 {
		return Author{Name: s}, nil
	}
	end := strings.LastIndex(s, ">")
	if end < open {
		return Author{}, errors.Errorf("malformed author %q", s)
	}

	return Author{
		Name:  strings.TrimSpace(s[:open]),
		Email: strings.TrimSpace(s[open+1 : end]),
	}, nil
}
