package anilist

const mediaQuery = `query ($idMal: Int, $search: String, $page: Int, $perPage: Int) {
  Page(page: $page, perPage: $perPage) {
    media(idMal: $idMal, search: $search, sort: SEARCH_MATCH, type: ANIME) {
      id
      idMal
      isAdult
      title {
        romaji
        english
      }
      startDate {
        year
      }
      genres
      episodes
      duration
      averageScore
      description(asHtml: false)
      coverImage {
        large
      }
      studios(sort: NAME, isMain: true) {
        nodes {
          name
        }
      }
    }
  }
}`
