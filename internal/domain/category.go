package domain

type CategoryInfo struct {
	Area  Area   `json:"area"`
	Hours string `json:"hours"`
}

// Categories is the static catalog of shift categories. Hours are nominal;
// an end hour lower than or equal to the start hour spans midnight.
var Categories = map[string]CategoryInfo{
	"consultorio_manana": {Area: AreaConsultorio, Hours: "8-14"},
	"consultorio_tarde":  {Area: AreaConsultorio, Hours: "14-20"},
	"internacion_dia":    {Area: AreaInternacion, Hours: "8-20"},
	"internacion_noche":  {Area: AreaInternacion, Hours: "20-8"},
	"refuerzo":           {Area: AreaRefuerzo, Hours: "10-18"},
	"guardia_24":         {Area: AreaCompleto, Hours: "8-8"},
}

func LookupCategory(category string) (CategoryInfo, bool) {
	info, ok := Categories[category]
	return info, ok
}
