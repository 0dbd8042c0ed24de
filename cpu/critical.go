// Copyright (c) The Tock Authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package cpu

import "sync"

// critical guards every CriticalSection so concurrent callers serialize the
// same way the ISR and the main loop would serialize on a single core with
// interrupts masked: a sync.Mutex stands in for real PRIMASK/BASEPRI
// manipulation, which is reserved for the real boot sequence and idle loop.
var critical sync.Mutex

// CriticalSection runs fn with exclusive access to state that is also
// touched from ISR context, matching spec §5's requirement that shared
// data (the refcount, a channel's enabled/buffer fields) stay atomic with
// respect to interrupt preemption on the single core, and spec §9's
// preference for keeping the protected region as short as possible.
func CriticalSection(fn func()) {
	critical.Lock()
	defer critical.Unlock()
	fn()
}
