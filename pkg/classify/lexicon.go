package classify

// Fixed lexicons for the cheap signals. The bilingual keyword sets cover the
// French and Arabic legal vocabulary seen in production traffic.

// structureLexicon maps URL path segments and breadcrumb labels to categories.
var structureLexicon = map[string]Category{
	"jurisprudence": Jurisprudence,
	"arrets":        Jurisprudence,
	"decisions":     Jurisprudence,
	"اجتهاد":        Jurisprudence,
	"legislation":   Legislation,
	"lois":          Legislation,
	"codes":         Legislation,
	"textes":        Legislation,
	"تشريع":         Legislation,
	"قوانين":        Legislation,
	"doctrine":      Doctrine,
	"etudes":        Doctrine,
	"فقه":           Doctrine,
	"procedures":    Procedure,
	"مساطر":         Procedure,
	"actualites":    Actualite,
	"news":          Actualite,
	"مستجدات":       Actualite,
}

// structureDomainLexicon maps path segments and breadcrumb labels to domains.
var structureDomainLexicon = map[string]Domain{
	"civil":         Civil,
	"مدني":          Civil,
	"penal":         Penal,
	"جنائي":         Penal,
	"commercial":    Commercial,
	"تجاري":         Commercial,
	"administratif": Administratif,
	"إداري":         Administratif,
	"social":        Social,
	"اجتماعي":       Social,
	"foncier":       Foncier,
	"عقاري":         Foncier,
}

// keywordLexicon maps categories to their content vocabulary.
var keywordLexicon = map[Category][]string{
	Jurisprudence: {
		"arrêt", "cour de cassation", "tribunal", "jugement", "pourvoi",
		"chambre", "considérant", "attendu que",
		"محكمة", "قرار", "حكم", "نقض", "استئناف", "طعن",
	},
	Legislation: {
		"loi", "décret", "dahir", "promulgation", "bulletin officiel",
		"article premier", "abrogé",
		"ظهير", "مرسوم", "قانون رقم", "الجريدة الرسمية", "مادة",
	},
	Doctrine: {
		"doctrine", "commentaire", "analyse juridique", "revue", "auteur",
		"تعليق", "دراسة", "مقال",
	},
	Procedure: {
		"procédure", "requête", "greffe", "assignation", "formulaire",
		"مسطرة", "عريضة", "طلب",
	},
	Actualite: {
		"actualité", "communiqué", "annonce", "colloque",
		"بلاغ", "ندوة",
	},
}

// domainLexicon maps domains to their content vocabulary.
var domainLexicon = map[Domain][]string{
	Civil: {
		"code civil", "obligation", "contrat", "responsabilité civile", "divorce",
		"عقد", "التزام", "طلاق",
	},
	Penal: {
		"pénal", "infraction", "peine", "crime", "délit",
		"جريمة", "عقوبة", "جنحة",
	},
	Commercial: {
		"fonds de commerce", "société commerciale", "faillite", "effet de commerce",
		"شركة", "أصل تجاري",
	},
	Administratif: {
		"excès de pouvoir", "acte administratif", "marché public",
		"قرار إداري", "صفقة عمومية",
	},
	Social: {
		"code du travail", "salarié", "licenciement", "accident du travail",
		"مدونة الشغل", "أجير",
	},
	Foncier: {
		"titre foncier", "immatriculation foncière", "conservation foncière",
		"رسم عقاري", "تحفيظ",
	},
}
