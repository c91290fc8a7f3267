// Copyright 2019 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Target FIFO draining.
package ecpd

import (
	"fmt"

	"github.com/golang/glog"
)

// Written into the last outbound byte of a burst. Tells the target that the
// byte is the final one clocked in this probe/drain cycle.
const lastByteMarker = 0xF0

// Probes the number of bytes available under selector ir, clamps it to max
// and shifts that many bytes out. Leaves the controller in Run-Test-Idle.
// Returns an empty slice when nothing is available.
func (u *UserRegister) burst(ir UserIR, max int) ([]byte, error) {
	var err error
	if err = u.selectIR(ir); err != nil {
		return nil, err
	}
	if err = u.beginData(); err != nil {
		return nil, err
	}

	var probe []byte
	if probe, err = u.tap.Shift([]byte{0}, 8, false); err != nil {
		return nil, fmt.Errorf("available probe failed: %v", err)
	}
	available := int(probe[0])
	glog.V(2).Infof("[user-burst]: ir = %v, available = %v, max = %v", ir, available, max)
	if available > max {
		available = max
	}
	if available <= 0 {
		return nil, u.idle()
	}

	buf := make([]byte, available)
	buf[available-1] = lastByteMarker
	var data []byte
	if data, err = u.tap.Shift(buf, 8*available, true); err != nil {
		return nil, fmt.Errorf("burst shift failed: %v", err)
	}
	if err = u.idle(); err != nil {
		return nil, err
	}
	return data, nil
}

// Drains up to n bytes from the target FIFO. Stops when the target reports
// nothing available, so the result may be shorter than n; callers compare
// the length against their request.
func (u *UserRegister) drainFifo(n int) ([]byte, error) {
	data := make([]byte, 0, n)
	for len(data) < n {
		chunk, err := u.burst(UserIRFifo, n-len(data))
		if err != nil {
			return data, err
		}
		if len(chunk) == 0 {
			glog.V(1).Infof("[user-fifo]: empty after %d of %d bytes", len(data), n)
			break
		}
		data = append(data, chunk...)
	}
	return data, nil
}
