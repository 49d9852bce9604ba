package menu

import "strings"

// WelcomeText is the greeting sent on /start.
const WelcomeText = "Добро пожаловать в бот Mr. House 👷‍♂️\n" +
	"Здесь Вы можете посмотреть наши локации, ознакомиться с проектами и ценами, " +
	"узнать стоимость строительства и задать вопросы нашему помощнику."

// MenuPromptText accompanies the main menu keyboard.
const MenuPromptText = "Выберите раздел:"

// UnknownText is sent when a message matches no button label.
const UnknownText = "Извините, я вас не понял. Пожалуйста, используйте кнопки ниже:"

// ComingSoonText is the fallback shown on a catalog lookup miss.
const ComingSoonText = "Раздел в разработке. Скоро здесь появятся подробности!"

// PriceStubText answers the price-estimate button.
const PriceStubText = "💰 Стоимость строительства:\n\n" +
	"Раздел в разработке. Скоро вы сможете рассчитать стоимость дома под ключ!"

// QuestionStubText answers the AI-question button.
const QuestionStubText = "❓ Задать вопрос:\n\n" +
	"Раздел в разработке. Скоро здесь появится наш умный помощник!"

// LocationsListText heads the locations listing.
const LocationsListText = "📍 Наши локации — выберите, что посмотреть:"

// ProjectsListText heads the projects listing.
const ProjectsListText = "🏗️ Проекты и цены — выберите проект:"

// ManagerText renders the contact-manager stub with configured contacts.
func ManagerText(phone, handle string) string {
	b := strings.Builder{}
	b.WriteString("📞 Связаться с менеджером:\n\n")
	b.WriteString("Напишите свой вопрос прямо здесь — наш менеджер ответит вам в ближайшее время!")
	if phone != "" {
		b.WriteString("\nИли позвоните нам: ")
		b.WriteString(phone)
	}
	if handle != "" {
		b.WriteString("\nТелеграм менеджера: ")
		b.WriteString(handle)
	}
	return b.String()
}
