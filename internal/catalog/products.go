// internal/catalog/products.go
package catalog

// defaultEntries is the static insurance product table. Declaration
// order is significant: fuzzy-score ties are broken by it.
var defaultEntries = []Entry{
	{ID: 1, Name: "Group Health Insurance", Aliases: []string{"group health insurance", "group health", "ghi"}},
	{ID: 2, Name: "Group Personal Accident", Aliases: []string{"group personal accident", "group accident"}},
	{ID: 3, Name: "Group Term Life", Aliases: []string{"group term life", "group life"}},
	{ID: 4, Name: "Group Travel Insurance", Aliases: []string{"group travel insurance", "group travel"}},
	{ID: 5, Name: "Fire Insurance", Aliases: []string{"fire", "fire insurance"}},
	{ID: 6, Name: "Burglary Insurance", Aliases: []string{"burglary insurance", "burglary"}},
	{ID: 7, Name: "Office Package Policy", Aliases: []string{"office package policy", "office package"}},
	{ID: 8, Name: "Shop Owners Insurance", Aliases: []string{"shop owners insurance", "shop owners"}},
	{ID: 10, Name: "Key Man Insurance", Aliases: []string{"key man insurance", "key man"}},
	{ID: 11, Name: "Group Gratuity Insurance", Aliases: []string{"group gratuity insurance", "group gratuity"}},
	{ID: 12, Name: "General Liability", Aliases: []string{"general liability", "liability"}},
	{ID: 13, Name: "Marine Insurance", Aliases: []string{"marine insurance", "marine"}},
	{ID: 14, Name: "Professional Indemnity for Doctors", Aliases: []string{"professional indemnity for doctors", "doctors indemnity"}},
	{ID: 15, Name: "Directors Officers Liability", Aliases: []string{"directors officers liability", "directors liability"}},
	{ID: 16, Name: "Construction All Risk", Aliases: []string{"construction all risk", "construction risk"}},
	{ID: 17, Name: "Erection All Risk", Aliases: []string{"erection all risk", "erection risk"}},
	{ID: 18, Name: "Plant Machinery", Aliases: []string{"plant machinery", "plant", "machinery"}},
	{ID: 19, Name: "Workmen Compensation", Aliases: []string{"workmen compensation", "workmen comp", "workmen", "wc"}},
	{ID: 20, Name: "Professional Indemnity Companies", Aliases: []string{"professional indemnity companies", "company indemnity"}},
	{ID: 21, Name: "Cyber Risk Insurance", Aliases: []string{"cyber risk insurance", "cyber insurance", "cyber"}},
	{ID: 22, Name: "Commercial Crime Insurance", Aliases: []string{"commercial crime insurance", "commercial crime"}},
	{ID: 23, Name: "Product Liability", Aliases: []string{"product liability"}},
	{ID: 24, Name: "Public Liability", Aliases: []string{"public liability"}},
	{ID: 25, Name: "OPD", Aliases: []string{"opd"}},
	{ID: 26, Name: "Event Cancellation Insurance", Aliases: []string{"event cancellation insurance", "event cancellation"}},
	{ID: 27, Name: "Player Loss of Fees", Aliases: []string{"player loss of fees"}},
	{ID: 28, Name: "Custom Duty Package Policy", Aliases: []string{"custom duty package policy", "custom duty"}},
	{ID: 29, Name: "Transport Operators Liability", Aliases: []string{"transport operators liability", "transport liability"}},
	{ID: 32, Name: "Credit Insurance", Aliases: []string{"credit insurance", "credit"}},
	{ID: 33, Name: "Group Care Policy Covid", Aliases: []string{"group care policy covid", "covid cover"}},
	{ID: 34, Name: "Fleet Insurance", Aliases: []string{"fleet insurance", "fleet"}},
	{ID: 35, Name: "Clinical Trial Insurance", Aliases: []string{"clinical trial insurance", "clinical trial"}},
	{ID: 36, Name: "Group Total Protect Policy", Aliases: []string{"group total protect policy", "total protect"}},
	{ID: 37, Name: "Aviation Insurance", Aliases: []string{"aviation insurance", "aviation"}},
	{ID: 38, Name: "Electric Equipment Insurance", Aliases: []string{"electric equipment insurance", "electric equipment"}},
	{ID: 39, Name: "Fidelity Insurance", Aliases: []string{"fidelity insurance", "fidelity"}},
	{ID: 40, Name: "Industrial All Risk Insurance", Aliases: []string{"industrial all risk insurance", "industrial risk"}},
	{ID: 41, Name: "Kisan Suvidha Bima Policy", Aliases: []string{"kisan suvidha bima policy", "kisan suvidha"}},
	{ID: 42, Name: "Pet Insurance", Aliases: []string{"pet insurance", "pet"}},
	{ID: 43, Name: "Cattle Insurance", Aliases: []string{"cattle insurance", "cattle"}},
	{ID: 44, Name: "Boiler Pressure Plant Insurance", Aliases: []string{"boiler pressure plant insurance", "boiler insurance"}},
	{ID: 45, Name: "Plate Glass Insurance", Aliases: []string{"plate glass insurance", "plate glass"}},
	{ID: 46, Name: "All Risks Insurance", Aliases: []string{"all risks insurance", "all risks"}},
	{ID: 47, Name: "Money Insurance", Aliases: []string{"money insurance", "money"}},
	{ID: 99, Name: "Others", Aliases: []string{"others"}},
	{ID: 100, Name: "EDLI Scheme", Aliases: []string{"edli scheme"}},
	{ID: 102, Name: "Affinity Insurance", Aliases: []string{"affinity insurance", "affinity"}},
	{ID: 103, Name: "Group Health Top Up Insurance", Aliases: []string{"group health top up insurance", "health top up"}},
	{ID: 104, Name: "Group Term Top Up Insurance", Aliases: []string{"group term top up insurance", "term top up"}},
	{ID: 106, Name: "Machinery Breakdown", Aliases: []string{"machinery breakdown"}},
	{ID: 110, Name: "Kidnap Ransom Extortion Insurance", Aliases: []string{"kidnap ransom extortion insurance", "kidnap insurance"}},
	{ID: 112, Name: "Standard Fire Special Perils", Aliases: []string{"standard fire special perils", "fire special perils"}},
	{ID: 113, Name: "Fire Package Policy", Aliases: []string{"fire package policy"}},
	{ID: 114, Name: "Portable Equipment Insurance", Aliases: []string{"portable equipment insurance", "portable equipment"}},
	{ID: 115, Name: "Jewellers Block Insurance", Aliases: []string{"jewellers block insurance", "jewellers block"}},
	{ID: 116, Name: "Neon Sign", Aliases: []string{"neon sign"}},
	{ID: 117, Name: "Drone Insurance", Aliases: []string{"drone insurance", "drone"}},
	{ID: 119, Name: "Baggage", Aliases: []string{"baggage"}},
	{ID: 120, Name: "Travel", Aliases: []string{"travel"}},
	{ID: 121, Name: "Petrol Station Package Policy", Aliases: []string{"petrol station package policy", "petrol station"}},
	{ID: 122, Name: "Fire Loss of Profit", Aliases: []string{"fire loss of profit"}},
	{ID: 123, Name: "Bharat Griha Raksha", Aliases: []string{"bharat griha raksha"}},
	{ID: 184, Name: "Special Contingency Policy", Aliases: []string{"special contingency policy"}},
	{ID: 185, Name: "Professional Indemnity Medical Establishments", Aliases: []string{"professional indemnity medical establishments", "medical establishments indemnity"}},
	{ID: 186, Name: "Cyber Risk Insurance Individuals", Aliases: []string{"cyber risk insurance individuals", "individual cyber"}},
	{ID: 187, Name: "Carrier Legal Liability", Aliases: []string{"carrier legal liability"}},
	{ID: 188, Name: "Information Communication Technology Liability", Aliases: []string{"information communication technology liability", "ict liability"}},
}
