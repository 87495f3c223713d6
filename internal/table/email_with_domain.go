/*
cleanupd - mail transfer agent queue-cleanup service.
Copyright (C) 2024 cleanupd contributors

This program is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

This program is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with this program.  If not, see <https://www.gnu.org/licenses/>.
*/

package table

import (
	"context"
	"fmt"

	"github.com/qfile/cleanupd/framework/address"
)

// EmailWithDomain appends one of a fixed set of domains to a bare local
// part, the inverse operation of EmailLocalpart.
type EmailWithDomain struct {
	domains []string
}

// NewEmailWithDomain validates and stores the candidate domains.
func NewEmailWithDomain(domains []string) (*EmailWithDomain, error) {
	if len(domains) == 0 {
		return nil, fmt.Errorf("table.email_with_domain: at least one domain is required")
	}
	for _, d := range domains {
		if !address.ValidDomain(d) {
			return nil, fmt.Errorf("table.email_with_domain: invalid domain: %s", d)
		}
	}
	return &EmailWithDomain{domains: domains}, nil
}

func (s *EmailWithDomain) Lookup(_ context.Context, key string) (string, bool, error) {
	return address.QuoteMbox(key) + "@" + s.domains[0], true, nil
}

func (s *EmailWithDomain) LookupMulti(_ context.Context, key string) ([]string, error) {
	quotedMbox := address.QuoteMbox(key)
	emails := make([]string, len(s.domains))
	for i, domain := range s.domains {
		emails[i] = quotedMbox + "@" + domain
	}
	return emails, nil
}
