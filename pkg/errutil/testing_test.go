// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Helpdesk Contributors

package errutil_test

import (
	"errors"
	"testing"

	"github.com/samber/oops"

	"github.com/helpdeskhq/helpdesk/pkg/errutil"
)

var errRejected = errors.New("rejected")

func TestAssertErrorCode_MatchingCode(t *testing.T) {
	err := oops.Code("MY_CODE").Errorf("test error")
	errutil.AssertErrorCode(t, err, "MY_CODE")
}

func TestAssertErrorContext_MatchingKeyValue(t *testing.T) {
	err := oops.With("user_id", "123").Errorf("test error")
	errutil.AssertErrorContext(t, err, "user_id", "123")
}

func TestAssertRejection_BareSentinel(t *testing.T) {
	err := oops.Code("REJECTED").Wrap(errRejected)
	errutil.AssertRejection(t, err, errRejected, "REJECTED")
}
