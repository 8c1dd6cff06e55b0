package auth

// Admin is one entry of the static admin allow-list.
type Admin struct {
	Email        string
	PasswordHash string
	Name         string
}

// Directory holds the admins loaded from configuration at startup. It is
// immutable for the process lifetime, removing an admin means changing the
// config and restarting.
type Directory struct {
	admins map[string]Admin
}

func NewDirectory(admins []Admin) *Directory {
	byEmail := make(map[string]Admin, len(admins))
	for _, admin := range admins {
		byEmail[admin.Email] = admin
	}
	return &Directory{admins: byEmail}
}

// FindByEmail does an exact, case-sensitive lookup.
func (d *Directory) FindByEmail(email string) (Admin, bool) {
	admin, ok := d.admins[email]
	return admin, ok
}

// IsAuthorized reports whether the email is on the allow-list. The dashboard
// gate calls this on every request, nothing is cached in between.
func (d *Directory) IsAuthorized(email string) bool {
	_, ok := d.admins[email]
	return ok
}
