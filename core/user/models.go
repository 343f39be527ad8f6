package user

// Profile holds the display fields of a student, as captured on issued reports.
type Profile struct {
	UID   string `json:"uid"`
	Name  string `json:"name"`
	CPF   string `json:"cpf"`
	Turma string `json:"turma"` // class/cohort label
	Email string `json:"email"`
}

// Token is a verified identity token.
type Token struct {
	UID    string
	Claims map[string]interface{}
}

func (t Token) claim(key string) string {
	if s, ok := t.Claims[key].(string); ok {
		return s
	}
	return ""
}

// Profile builds a Profile from the token claims.
func (t Token) Profile() Profile {
	return Profile{
		UID:   t.UID,
		Name:  t.claim("name"),
		CPF:   t.claim("cpf"),
		Turma: t.claim("turma"),
		Email: t.claim("email"),
	}
}

// merge fills the empty fields of `p` with those of `other`.
func (p Profile) merge(other Profile) Profile {
	if p.Name == "" {
		p.Name = other.Name
	}
	if p.CPF == "" {
		p.CPF = other.CPF
	}
	if p.Turma == "" {
		p.Turma = other.Turma
	}
	if p.Email == "" {
		p.Email = other.Email
	}
	return p
}
