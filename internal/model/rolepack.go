package model

// RolePack selects which optional field groups appear in the assembled
// profile. Decided once per run from Tier-A evidence only.
type RolePack string

const (
	RolePackMedical      RolePack = "medical"
	RolePackBusiness     RolePack = "business"
	RolePackAcademic     RolePack = "academic"
	RolePackArtist       RolePack = "artist"
	RolePackPublicFigure RolePack = "public_figure"
	RolePackGeneric      RolePack = "generic"
)

// baseFields appear in every pack's about table.
var baseFields = []string{
	FieldFullName,
	FieldProfession,
	FieldOrganization,
	FieldLocation,
	FieldWebsite,
	FieldEmail,
	FieldPhone,
}

var packExtras = map[RolePack][]string{
	RolePackMedical:      {FieldSpecialty, FieldCredentials},
	RolePackBusiness:     {FieldIndustry},
	RolePackAcademic:     {FieldResearchArea, FieldEducation},
	RolePackArtist:       {FieldWorks, FieldAwards},
	RolePackPublicFigure: {FieldKnownFor, FieldNationality, FieldBirthDate},
}

// Fields returns the about-table field set surfaced for the pack.
func (rp RolePack) Fields() []string {
	fields := make([]string, len(baseFields))
	copy(fields, baseFields)
	return append(fields, packExtras[rp]...)
}

// Includes reports whether field belongs to the pack's about table.
func (rp RolePack) Includes(field string) bool {
	for _, f := range rp.Fields() {
		if f == field {
			return true
		}
	}
	return false
}
