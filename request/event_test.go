// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package request

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEvents(t *testing.T) {
	assert.Len(t, eventNames, numEvents)
	assert.Len(t, Events(), numEvents)
	events := Events()
	assert.Equal(t, BeforeExecutionStart, events[BeforeExecutionStart])
	assert.Equal(t, AfterRoutePlanned, events[AfterRoutePlanned])
	assert.Equal(t, AfterConnect, events[AfterConnect])
	assert.Equal(t, BeforeAttempt, events[BeforeAttempt])
	assert.Equal(t, AfterResponse, events[AfterResponse])
	assert.Equal(t, AfterAttemptTimeout, events[AfterAttemptTimeout])
	assert.Equal(t, AfterAttemptError, events[AfterAttemptError])
	assert.Equal(t, BeforeRetry, events[BeforeRetry])
	assert.Equal(t, AfterRedirect, events[AfterRedirect])
	assert.Equal(t, AfterExecutionEnd, events[AfterExecutionEnd])
}

func TestEvent_Name(t *testing.T) {
	assert.Equal(t, "BeforeExecutionStart", BeforeExecutionStart.Name())
	assert.Equal(t, "AfterRoutePlanned", AfterRoutePlanned.Name())
	assert.Equal(t, "AfterConnect", AfterConnect.Name())
	assert.Equal(t, "BeforeAttempt", BeforeAttempt.Name())
	assert.Equal(t, "AfterResponse", AfterResponse.Name())
	assert.Equal(t, "AfterAttemptTimeout", AfterAttemptTimeout.Name())
	assert.Equal(t, "AfterAttemptError", AfterAttemptError.Name())
	assert.Equal(t, "BeforeRetry", BeforeRetry.String())
	assert.Equal(t, "AfterRedirect", AfterRedirect.String())
	assert.Equal(t, "AfterExecutionEnd", AfterExecutionEnd.String())
}
