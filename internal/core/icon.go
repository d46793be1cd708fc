package core

// Icon is a name from the closed icon vocabulary.
type Icon string

const (
	IconWallet        Icon = "wallet"
	IconCart          Icon = "cart"
	IconHome          Icon = "home"
	IconCar           Icon = "car"
	IconFood          Icon = "food"
	IconHealth        Icon = "health"
	IconGift          Icon = "gift"
	IconTravel        Icon = "travel"
	IconSalary        Icon = "salary"
	IconChart         Icon = "chart"
	IconPiggyBank     Icon = "piggy-bank"
	IconEducation     Icon = "education"
	IconEntertainment Icon = "entertainment"
	IconBill          Icon = "bill"
	IconOther         Icon = "other"
)

var icons = map[Icon]struct{}{
	IconWallet: {}, IconCart: {}, IconHome: {}, IconCar: {}, IconFood: {},
	IconHealth: {}, IconGift: {}, IconTravel: {}, IconSalary: {}, IconChart: {},
	IconPiggyBank: {}, IconEducation: {}, IconEntertainment: {}, IconBill: {}, IconOther: {},
}

func (i Icon) Valid() bool {
	_, ok := icons[i]
	return ok
}
