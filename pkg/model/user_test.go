package model

import "testing"

func TestClassifyRole(t *testing.T) {
	tests := []struct {
		name string
		user *User
		want UserRole
	}{
		{"nil user", nil, RoleUser},
		{"student", &User{Role: "student"}, RoleUser},
		{"admin role", &User{Role: "admin"}, RoleAdmin},
		{"superuser flag", &User{Role: "student", IsSuperuser: true}, RoleAdmin},
		{"both", &User{Role: "admin", IsSuperuser: true}, RoleAdmin},
		{"staff is not admin", &User{Role: "student", IsStaff: true}, RoleUser},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClassifyRole(tt.user); got != tt.want {
				t.Errorf("ClassifyRole() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestUser_ApplyMergesOnlySetFields(t *testing.T) {
	phone := "+1 555 0100"
	u := User{ID: 7, Email: "a@u.edu", FirstName: "Ada", LastName: "Lovelace", Role: "student"}

	first := "Augusta"
	got := u.Apply(UserPatch{FirstName: &first, Phone: &phone})

	if got.FirstName != "Augusta" {
		t.Errorf("FirstName = %q, want %q", got.FirstName, "Augusta")
	}
	if got.LastName != "Lovelace" || got.Email != "a@u.edu" || got.ID != 7 {
		t.Errorf("untouched fields changed: %+v", got)
	}
	if got.Phone == nil || *got.Phone != phone {
		t.Errorf("Phone = %v, want %q", got.Phone, phone)
	}
	if u.FirstName != "Ada" {
		t.Error("Apply must not mutate the receiver")
	}
}

func TestUserPatch_TouchesRole(t *testing.T) {
	yes := true
	role := "admin"
	name := "x"
	if (UserPatch{FirstName: &name}).TouchesRole() {
		t.Error("name-only patch should not touch role")
	}
	if !(UserPatch{IsSuperuser: &yes}).TouchesRole() {
		t.Error("superuser patch should touch role")
	}
	if !(UserPatch{Role: &role}).TouchesRole() {
		t.Error("role patch should touch role")
	}
}

func TestUser_FullName(t *testing.T) {
	if got := (&User{FirstName: "Ada", LastName: "L"}).FullName(); got != "Ada L" {
		t.Errorf("FullName() = %q", got)
	}
	if got := (&User{Email: "a@u.edu"}).FullName(); got != "a@u.edu" {
		t.Errorf("FullName() = %q, want email fallback", got)
	}
}
