package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUserCapabilities(t *testing.T) {
	cases := []struct {
		role           string
		createProducts bool
		createPrepares bool
		checkPrepares  bool
		editProduces   bool
	}{
		{RoleWorker, false, false, true, true},
		{RoleTester, false, false, false, false},
		{RoleSupervisor, false, true, false, true},
		{RoleManager, true, true, false, true},
		{RoleHead, true, true, false, true},
	}
	for _, tc := range cases {
		t.Run(tc.role, func(t *testing.T) {
			u := &User{Role: tc.role}
			assert.Equal(t, tc.createProducts, u.CanCreateProducts())
			assert.Equal(t, tc.createProducts, u.CanManageMachines())
			assert.Equal(t, tc.createProducts, u.CanManageUsers())
			assert.Equal(t, tc.createPrepares, u.CanCreatePrepares())
			assert.Equal(t, tc.checkPrepares, u.CanCheckPrepares())
			assert.Equal(t, tc.editProduces, u.CanEditProduces())
			assert.Equal(t, tc.editProduces, u.CanEditPackages())
			assert.True(t, u.CanViewProduces())
			assert.True(t, u.CanViewPackages())
		})
	}
}
