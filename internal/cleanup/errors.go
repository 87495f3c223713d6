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

package cleanup

import "errors"

// ErrNotStarted is returned by Process when called on a State that Begin
// has not yet been called on. It signals caller misuse, not a malformed
// input stream, so it is returned rather than folded into State.Errs.
var ErrNotStarted = errors.New("cleanup: Process called before Begin")

// ErrTerminated is returned by Process when called on a State in the
// terminated stage. Process itself never moves a State into that stage:
// once the content boundary is reached, further calls hand the State to the
// ContentHandler again.
var ErrTerminated = errors.New("cleanup: Process called after termination")

// errAliasDepthExceeded is returned by TableRewriter when virtual-alias
// expansion recurses past MaxAliasDepth, which most likely indicates a
// lookup-table cycle rather than a legitimately deep alias chain.
var errAliasDepthExceeded = errors.New("cleanup: alias expansion exceeded maximum depth")
