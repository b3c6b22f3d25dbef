package i18n

// Argument order for subject.* is (type, area). For body.* it is
// (type, area, start, end, reason), except body.ADVANCE which is
// (type, area, lead, start). Translations reorder with explicit indexes.

var english = map[string]string{
	"type.ELECTRICITY": "Electricity",
	"type.WATER":       "Water",
	"type.GAS":         "Gas",
	"type.INTERNET":    "Internet",

	"subject.NEW":     "Scheduled %s outage in %s",
	"subject.UPDATE":  "Update: %s outage in %s",
	"subject.CANCEL":  "Cancelled: %s outage in %s",
	"subject.RESTORE": "%s service restored in %s",
	"subject.ADVANCE": "Reminder: %s outage in %s starts soon",

	"body.NEW":     "A %s outage is scheduled in %s from %s to %s. Reason: %s.",
	"body.UPDATE":  "The %s outage in %s has changed. It now runs from %s to %s. Reason: %s.",
	"body.CANCEL":  "The %s outage in %s planned from %[3]s to %[4]s has been cancelled.",
	"body.RESTORE": "%[1]s service in %[2]s has been restored. The outage began at %[3]s.",
	"body.ADVANCE": "Reminder: the %s outage in %s starts in %s, at %s.",

	"label.area":     "Area",
	"label.start":    "Starts",
	"label.end":      "Expected end",
	"label.reason":   "Reason",
	"label.provider": "Provider",
	"label.footer":   "You receive this because you registered an address in this district.",

	"duration.hm":   "%d h %d min",
	"duration.m":    "%d min",
	"area.unknown":  "your area",
	"reason.none":   "not specified",
	"test.subject":  "Test notification",
	"test.fallback": "This is a test notification from Outage Alerts.",
}

var sinhala = map[string]string{
	"type.ELECTRICITY": "විදුලි",
	"type.WATER":       "ජල",
	"type.GAS":         "ගෑස්",
	"type.INTERNET":    "අන්තර්ජාල",

	"subject.NEW":     "%[2]s හි සැලසුම් කළ %[1]s බිඳවැටීමක්",
	"subject.UPDATE":  "යාවත්කාලීනයි: %[2]s හි %[1]s බිඳවැටීම",
	"subject.CANCEL":  "අවලංගුයි: %[2]s හි %[1]s බිඳවැටීම",
	"subject.RESTORE": "%[2]s හි %[1]s සේවාව යළි පිහිටුවන ලදී",
	"subject.ADVANCE": "සිහිකැඳවීම: %[2]s හි %[1]s බිඳවැටීම ළඟදීම",

	"body.NEW":     "%[2]s හි %[3]s සිට %[4]s දක්වා %[1]s බිඳවැටීමක් සැලසුම් කර ඇත. හේතුව: %[5]s.",
	"body.UPDATE":  "%[2]s හි %[1]s බිඳවැටීම වෙනස් විය. නව කාලය %[3]s සිට %[4]s දක්වා. හේතුව: %[5]s.",
	"body.CANCEL":  "%[2]s හි %[3]s සිට %[4]s දක්වා සැලසුම් කළ %[1]s බිඳවැටීම අවලංගු කර ඇත.",
	"body.RESTORE": "%[2]s හි %[1]s සේවාව යළි පිහිටුවන ලදී. බිඳවැටීම %[3]s ට ආරම්භ විය.",
	"body.ADVANCE": "සිහිකැඳවීම: %[2]s හි %[1]s බිඳවැටීම %[3]s කින්, %[4]s ට ආරම්භ වේ.",

	"label.area":     "ප්‍රදේශය",
	"label.start":    "ආරම්භය",
	"label.end":      "අපේක්ෂිත අවසානය",
	"label.reason":   "හේතුව",
	"label.provider": "සැපයුම්කරු",
	"label.footer":   "ඔබ මෙම දිස්ත්‍රික්කයේ ලිපිනයක් ලියාපදිංචි කර ඇති නිසා මෙය ලැබේ.",

	"duration.hm":  "පැය %d මිනිත්තු %d",
	"duration.m":   "මිනිත්තු %d",
	"area.unknown": "ඔබේ ප්‍රදේශය",
	"reason.none":  "සඳහන් කර නැත",
	"test.subject": "පරීක්ෂණ දැනුම්දීම",
}

var tamil = map[string]string{
	"type.ELECTRICITY": "மின்சார",
	"type.WATER":       "நீர்",
	"type.GAS":         "எரிவாயு",
	"type.INTERNET":    "இணைய",

	"subject.NEW":     "%[2]s இல் திட்டமிடப்பட்ட %[1]s தடை",
	"subject.UPDATE":  "புதுப்பிப்பு: %[2]s இல் %[1]s தடை",
	"subject.CANCEL":  "ரத்து: %[2]s இல் %[1]s தடை",
	"subject.RESTORE": "%[2]s இல் %[1]s சேவை மீட்டமைக்கப்பட்டது",
	"subject.ADVANCE": "நினைவூட்டல்: %[2]s இல் %[1]s தடை விரைவில்",

	"body.NEW":     "%[2]s இல் %[3]s முதல் %[4]s வரை %[1]s தடை திட்டமிடப்பட்டுள்ளது. காரணம்: %[5]s.",
	"body.UPDATE":  "%[2]s இல் %[1]s தடை மாற்றப்பட்டது. புதிய நேரம் %[3]s முதல் %[4]s வரை. காரணம்: %[5]s.",
	"body.CANCEL":  "%[2]s இல் %[3]s முதல் %[4]s வரை திட்டமிடப்பட்ட %[1]s தடை ரத்து செய்யப்பட்டது.",
	"body.RESTORE": "%[2]s இல் %[1]s சேவை மீட்டமைக்கப்பட்டது. தடை %[3]s இல் தொடங்கியது.",
	"body.ADVANCE": "நினைவூட்டல்: %[2]s இல் %[1]s தடை %[3]s இல், %[4]s க்கு தொடங்கும்.",

	"label.area":     "பகுதி",
	"label.start":    "தொடக்கம்",
	"label.end":      "எதிர்பார்க்கப்படும் முடிவு",
	"label.reason":   "காரணம்",
	"label.provider": "வழங்குநர்",
	"label.footer":   "இந்த மாவட்டத்தில் நீங்கள் முகவரியை பதிவு செய்துள்ளதால் இது அனுப்பப்படுகிறது.",

	"duration.hm":  "%d மணி %d நிமிடம்",
	"duration.m":   "%d நிமிடம்",
	"area.unknown": "உங்கள் பகுதி",
	"reason.none":  "குறிப்பிடப்படவில்லை",
	"test.subject": "சோதனை அறிவிப்பு",
}
