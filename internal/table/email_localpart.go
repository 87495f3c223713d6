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

	"github.com/qfile/cleanupd/framework/address"
)

// EmailLocalpart resolves a full address to its local part. If AllowNonEmail
// is set, keys that aren't valid addresses pass through unchanged instead of
// failing the lookup.
type EmailLocalpart struct {
	AllowNonEmail bool
}

func (s EmailLocalpart) Lookup(_ context.Context, key string) (string, bool, error) {
	mbox, _, err := address.Split(key)
	if err != nil {
		if s.AllowNonEmail {
			return key, true, nil
		}
		return "", false, nil
	}
	return mbox, true, nil
}
