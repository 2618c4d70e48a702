package heuristic

// Static detection tables. Keeping these as plain data in one place keeps the
// heuristic layer testable and lets the lists grow without touching the
// matching code. All matching is case-insensitive substring search.

// domainSpec describes one career domain and the keywords that signal it.
// The slice order is the priority order used by DetectMainField.
type domainSpec struct {
	ID       string
	Field    string
	Keywords []string
}

var domainTable = []domainSpec{
	{ID: "dev", Field: "Développement Logiciel", Keywords: []string{
		"javascript", "python", "java", "react", "node", "angular", "vue", "c++", "php", "ruby", "sql", "mongodb",
	}},
	{ID: "electronics", Field: "Électronique et IoT", Keywords: []string{
		"arduino", "electronique", "iot", "capteur", "circuit", "raspberry", "microcontroleur",
	}},
	{ID: "data", Field: "Data & Analyse", Keywords: []string{
		"data", "analyse", "statistique", "machine learning", "ia", "tableau", "power bi",
	}},
	{ID: "design", Field: "Design & UX", Keywords: []string{
		"figma", "photoshop", "ux", "ui", "design", "maquette", "prototype",
	}},
	{ID: "management", Field: "Management de Projet", Keywords: []string{
		"chef de projet", "management", "gestion", "coordination", "équipe", "scrum", "agile",
	}},
	{ID: "network", Field: "Réseaux & Systèmes", Keywords: []string{
		"réseau", "système", "linux", "windows", "serveur", "cloud", "aws", "azure", "devops",
	}},
}

var (
	juniorMarkers = []string{"débutant", "junior", "première expérience", "stage", "alternance"}
	seniorMarkers = []string{"senior", "expert", "10 ans", "expérimenté", "lead", "principal"}

	frenchMarkers  = []string{"français", "francais"}
	englishMarkers = []string{"anglais", "english", "toeic", "toefl"}
	otherLangMarkers = []string{"espagnol", "allemand", "arabe", "chinois"}

	educationMarkers = []string{"diplome", "formation", "université", "école", "master", "licence"}
	projectMarkers   = []string{"projet", "réalisation", "développement de"}
)

// skillSpec maps one skill to its signal keywords, taxonomy category and base
// proficiency level. A slice (not a map) keeps detection order deterministic.
type skillSpec struct {
	Name      string
	Keywords  []string
	Category  string
	BaseLevel int
}

var skillTable = []skillSpec{
	// Programming
	{Name: "JavaScript", Keywords: []string{"javascript", "js", "node.js", "nodejs"}, Category: "Développement", BaseLevel: 65},
	{Name: "Python", Keywords: []string{"python", "django", "flask", "pandas"}, Category: "Développement", BaseLevel: 70},
	{Name: "Java", Keywords: []string{"java", "spring", "hibernate"}, Category: "Développement", BaseLevel: 70},
	{Name: "React", Keywords: []string{"react", "reactjs", "react.js"}, Category: "Frontend", BaseLevel: 65},
	{Name: "Vue.js", Keywords: []string{"vue", "vuejs", "vue.js"}, Category: "Frontend", BaseLevel: 65},
	{Name: "Angular", Keywords: []string{"angular", "angularjs"}, Category: "Frontend", BaseLevel: 65},
	// Electronics
	{Name: "Arduino", Keywords: []string{"arduino", "atmega"}, Category: "Électronique", BaseLevel: 60},
	{Name: "IoT", Keywords: []string{"iot", "internet of things", "objets connectés"}, Category: "Électronique", BaseLevel: 65},
	{Name: "Électronique", Keywords: []string{"électronique", "electronique", "circuit"}, Category: "Hardware", BaseLevel: 60},
	// Data
	{Name: "SQL", Keywords: []string{"sql", "mysql", "postgresql", "oracle"}, Category: "Base de données", BaseLevel: 65},
	{Name: "Data Analysis", Keywords: []string{"analyse de données", "data analysis", "statistiques"}, Category: "Data", BaseLevel: 60},
	// Tooling
	{Name: "Git", Keywords: []string{"git", "github", "gitlab", "version control"}, Category: "Outils", BaseLevel: 60},
	{Name: "Docker", Keywords: []string{"docker", "container", "conteneur"}, Category: "DevOps", BaseLevel: 70},
	// Soft skills
	{Name: "Gestion de projet", Keywords: []string{"gestion de projet", "chef de projet", "coordination"}, Category: "Management", BaseLevel: 65},
	{Name: "Communication", Keywords: []string{"communication", "présentation", "rédaction"}, Category: "Soft Skills", BaseLevel: 60},
}

// rolesByCategory maps a skill category to realistic job titles.
var rolesByCategory = map[string][]string{
	"Développement":  {"Développeur Full-Stack", "Développeur Backend", "Développeur Frontend"},
	"Frontend":       {"Développeur Frontend", "Intégrateur Web", "UI Developer"},
	"Backend":        {"Développeur Backend", "API Developer"},
	"Électronique":   {"Technicien Électronique", "Ingénieur IoT", "Développeur Embedded"},
	"Hardware":       {"Ingénieur Hardware", "Technicien Électronique"},
	"Data":           {"Data Analyst", "Data Engineer", "Business Intelligence"},
	"DevOps":         {"DevOps Engineer", "Administrateur Système", "SRE"},
	"Management":     {"Chef de Projet", "Scrum Master", "Product Owner"},
}
