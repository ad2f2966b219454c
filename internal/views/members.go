package views

import (
	"sort"

	"github.com/xavierca1/pipeline-dashboard/internal/entity"
)

type MemberSortKey string

const (
	MemberSortByName      MemberSortKey = "name"
	MemberSortByEmail     MemberSortKey = "email"
	MemberSortByRole      MemberSortKey = "role"
	MemberSortByStatus    MemberSortKey = "status"
	MemberSortByCreatedAt MemberSortKey = "createdAt"
)

type MemberQuery struct {
	Search  string            `json:"search"`
	Role    entity.UserRole   `json:"role"`
	Status  entity.UserStatus `json:"status"`
	SortKey MemberSortKey     `json:"sortKey"`
	Desc    bool              `json:"desc"`
}

var roleLabels = map[entity.UserRole]string{
	entity.RoleStarter:    "Starter",
	entity.RoleTeamleiter: "Teamleiter",
	entity.RoleAdmin:      "Admin",
}

var userStatusLabels = map[entity.UserStatus]string{
	entity.UserPending:  "Ausstehend",
	entity.UserActive:   "Aktiv",
	entity.UserInactive: "Inaktiv",
	entity.UserLocked:   "Gesperrt",
}

func RoleLabel(r entity.UserRole) string {
	if l, ok := roleLabels[r]; ok {
		return l
	}
	return string(r)
}

func UserStatusLabel(s entity.UserStatus) string {
	if l, ok := userStatusLabels[s]; ok {
		return l
	}
	return string(s)
}

// Members filters and sorts team members the same way Leads does.
// Names sort by last name, then first name.
func Members(users []*entity.User, q MemberQuery) []*entity.User {
	needle := fold(q.Search)
	out := make([]*entity.User, 0, len(users))
	for _, u := range users {
		if u == nil {
			continue
		}
		if q.Role != "" && u.Role != q.Role {
			continue
		}
		if q.Status != "" && u.Status != q.Status {
			continue
		}
		if !matches(needle, u.FirstName, u.LastName, u.FullName(), u.Email) {
			continue
		}
		out = append(out, u)
	}

	cmp := memberComparator(q.SortKey)
	if cmp == nil {
		return out
	}
	sort.SliceStable(out, func(i, j int) bool {
		if q.Desc {
			return cmp(out[j], out[i]) < 0
		}
		return cmp(out[i], out[j]) < 0
	})
	return out
}

func memberComparator(key MemberSortKey) func(a, b *entity.User) int {
	c := newCollator()
	switch key {
	case MemberSortByName:
		return func(a, b *entity.User) int {
			if r := c.CompareString(a.LastName, b.LastName); r != 0 {
				return r
			}
			return c.CompareString(a.FirstName, b.FirstName)
		}
	case MemberSortByEmail:
		return func(a, b *entity.User) int { return c.CompareString(a.Email, b.Email) }
	case MemberSortByRole:
		return func(a, b *entity.User) int { return c.CompareString(RoleLabel(a.Role), RoleLabel(b.Role)) }
	case MemberSortByStatus:
		return func(a, b *entity.User) int {
			return c.CompareString(UserStatusLabel(a.Status), UserStatusLabel(b.Status))
		}
	case MemberSortByCreatedAt:
		return func(a, b *entity.User) int { return compareTime(a.CreatedAt, b.CreatedAt) }
	}
	return nil
}
